package prompts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shouni/go-social-kit/pkg/aiclient"
	"github.com/shouni/go-social-kit/pkg/domain"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, _ aiclient.CompleteOptions) (string, error) {
	f.calls++
	return f.response, f.err
}

func postSet(posts ...domain.PostDraft) *domain.PostSet {
	return &domain.PostSet{Posts: posts}
}

func TestSynthesizer_Template(t *testing.T) {
	t.Run("プレースホルダが置換されてサフィックスで終わるのだ", func(t *testing.T) {
		fake := &fakeCompleter{}
		s := NewSynthesizer(fake, "")
		posts := postSet(domain.PostDraft{Title: "Luxury Perfume", Caption: "A scent of Dubai."})

		got := s.Synthesize(context.Background(), posts, "Photo of [TITLE], inspired by: [CAPTION]")
		if len(got) != 1 {
			t.Fatalf("プロンプト数が違うのだ: %d", len(got))
		}
		if !strings.Contains(got[0], "Photo of Luxury Perfume") {
			t.Errorf("[TITLE] が置換されていないのだ: %s", got[0])
		}
		if !strings.Contains(got[0], "A scent of Dubai.") {
			t.Errorf("[CAPTION] が置換されていないのだ: %s", got[0])
		}
		if !strings.HasSuffix(got[0], NegativeSuffix) {
			t.Error("ネガティブ制約サフィックスで終わっていないのだ")
		}
		if fake.calls != 0 {
			t.Error("テンプレート経路なのにリモート呼び出しが走ったのだ")
		}
	})

	t.Run("長いキャプションは100文字に切り詰めるのだ", func(t *testing.T) {
		long := strings.Repeat("x", 150)
		s := NewSynthesizer(&fakeCompleter{}, "")
		got := s.Synthesize(context.Background(), postSet(domain.PostDraft{Title: "T", Caption: long}), "[CAPTION]")
		if strings.Contains(got[0], long) {
			t.Error("キャプションが切り詰められていないのだ")
		}
		if !strings.Contains(got[0], strings.Repeat("x", 100)) {
			t.Error("先頭100文字は残っているべきなのだ")
		}
	})

	t.Run("タイトルの無い投稿はスキップされるのだ", func(t *testing.T) {
		s := NewSynthesizer(&fakeCompleter{}, "")
		posts := postSet(
			domain.PostDraft{Title: "Has Title"},
			domain.PostDraft{Title: "", Caption: "orphan"},
			domain.PostDraft{Title: "Another"},
		)
		got := s.Synthesize(context.Background(), posts, "[TITLE]")
		if len(got) != 2 {
			t.Errorf("スキップ後のプロンプト数が違うのだ: %d", len(got))
		}
	})
}

func TestSynthesizer_Contextual(t *testing.T) {
	t.Run("モデルの回答を採用してサフィックスを付けるのだ", func(t *testing.T) {
		fake := &fakeCompleter{response: "A cinematic shot of perfume bottles on marble."}
		s := NewSynthesizer(fake, "")
		got := s.Synthesize(context.Background(), postSet(domain.PostDraft{Title: "Perfume", Caption: "c"}), "")
		if len(got) != 1 || fake.calls != 1 {
			t.Fatalf("文脈生成経路が使われていないのだ: %d件/%d回", len(got), fake.calls)
		}
		if !strings.HasPrefix(got[0], "A cinematic shot") {
			t.Errorf("モデルの回答が使われていないのだ: %s", got[0])
		}
		if !strings.Contains(got[0], SuffixMarker) {
			t.Error("サフィックスの目印が見当たらないのだ")
		}
	})

	t.Run("モデルが失敗したらフォールバックするのだ", func(t *testing.T) {
		fake := &fakeCompleter{err: errors.New("quota exceeded")}
		s := NewSynthesizer(fake, "")
		got := s.Synthesize(context.Background(), postSet(domain.PostDraft{Title: "Perfume", Caption: "Desert notes."}), "")
		if len(got) != 1 {
			t.Fatalf("フォールバックが動いていないのだ: %d", len(got))
		}
		if !strings.Contains(got[0], "Subject: Perfume") {
			t.Errorf("フォールバックの形になっていないのだ: %s", got[0])
		}
		if !strings.HasSuffix(got[0], NegativeSuffix) {
			t.Error("フォールバック経路でもサフィックスで終わるべきなのだ")
		}
	})
}
