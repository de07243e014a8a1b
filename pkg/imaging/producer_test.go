package imaging

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shouni/go-social-kit/pkg/prompts"
)

type fakeProvider struct {
	name  string
	url   string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.url, f.err
}

func TestProducer_Produce(t *testing.T) {
	t.Run("主系が成功したら副系は呼ばれないのだ", func(t *testing.T) {
		primary := &fakeProvider{name: "p", url: "https://img.example.com/1.png"}
		fallback := &fakeProvider{name: "f", url: "https://img.example.com/2.png"}
		p := NewProducer(primary, fallback, 0)

		got, err := p.Produce(context.Background(), "a perfume bottle")
		if err != nil {
			t.Fatalf("エラーになってしまったのだ: %v", err)
		}
		if got != primary.url {
			t.Errorf("主系のURLが返るべきなのだ: %s", got)
		}
		if fallback.calls != 0 {
			t.Error("副系が呼ばれてしまったのだ")
		}
	})

	t.Run("主系が失敗したときだけ副系に回るのだ", func(t *testing.T) {
		primary := &fakeProvider{name: "p", err: errors.New("content policy")}
		fallback := &fakeProvider{name: "f", url: "https://img.example.com/2.png"}
		p := NewProducer(primary, fallback, 0)

		got, err := p.Produce(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("エラーになってしまったのだ: %v", err)
		}
		if got != fallback.url || fallback.calls != 1 {
			t.Errorf("副系のURLが返るべきなのだ: %s (%d回)", got, fallback.calls)
		}
	})

	t.Run("主系が空URLを返した場合も副系に回るのだ", func(t *testing.T) {
		primary := &fakeProvider{name: "p", url: ""}
		fallback := &fakeProvider{name: "f", url: "https://img.example.com/2.png"}
		p := NewProducer(primary, fallback, 0)

		if _, err := p.Produce(context.Background(), "prompt"); err != nil {
			t.Fatalf("エラーになってしまったのだ: %v", err)
		}
		if fallback.calls != 1 {
			t.Error("空URLなのに副系が呼ばれていないのだ")
		}
	})

	t.Run("両方失敗したら ErrAllProvidersFailed なのだ", func(t *testing.T) {
		primary := &fakeProvider{name: "p", err: errors.New("down")}
		fallback := &fakeProvider{name: "f", err: errors.New("also down")}
		p := NewProducer(primary, fallback, 0)

		_, err := p.Produce(context.Background(), "prompt")
		if !errors.Is(err, ErrAllProvidersFailed) {
			t.Errorf("ErrAllProvidersFailed が欲しかったのだ: %v", err)
		}
	})
}

func TestCleanPrompt(t *testing.T) {
	t.Run("サフィックスの目印より後ろを切り落とすのだ", func(t *testing.T) {
		in := "A beautiful scene\n" + prompts.NegativeSuffix
		got := CleanPrompt(in)
		if strings.Contains(got, prompts.SuffixMarker) {
			t.Errorf("目印が残ってしまっているのだ: %s", got)
		}
		if got != "A beautiful scene" {
			t.Errorf("本文が変わってしまったのだ: %q", got)
		}
	})

	t.Run("1000文字を超える分は切り詰めるのだ", func(t *testing.T) {
		in := strings.Repeat("a", 1500)
		if got := CleanPrompt(in); len(got) != 1000 {
			t.Errorf("切り詰め後の長さが違うのだ: %d", len(got))
		}
	})
}

func TestReplicateProvider_Generate(t *testing.T) {
	t.Run("固定パラメータで予測を作って最初の出力を返すのだ", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Prefer"); got != "wait" {
				t.Errorf("同期モードの指定が無いのだ: %q", got)
			}
			body := new(strings.Builder)
			if _, err := io.Copy(body, r.Body); err != nil {
				t.Fatal(err)
			}
			for _, want := range []string{`"scheduler":"K_EULER"`, `"num_inference_steps":30`, `"width":1024`} {
				if !strings.Contains(body.String(), want) {
					t.Errorf("リクエストに %s が無いのだ: %s", want, body.String())
				}
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"status":"succeeded","output":["https://replicate.delivery/out.png"]}`))
		}))
		defer srv.Close()

		p := NewReplicateProvider(http.DefaultClient, srv.URL, "tok", "ver")
		got, err := p.Generate(context.Background(), "prompt")
		if err != nil {
			t.Fatalf("エラーになってしまったのだ: %v", err)
		}
		if got != "https://replicate.delivery/out.png" {
			t.Errorf("URLが違うのだ: %s", got)
		}
	})

	t.Run("出力が空ならエラーなのだ", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"succeeded","output":[]}`))
		}))
		defer srv.Close()

		p := NewReplicateProvider(http.DefaultClient, srv.URL, "tok", "ver")
		if _, err := p.Generate(context.Background(), "prompt"); err == nil {
			t.Error("空出力なのにエラーが返らなかったのだ")
		}
	})
}
