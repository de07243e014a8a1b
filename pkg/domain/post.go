package domain

import "strings"

// PostsPerSet は1回の生成で必ず返されるべき投稿数なのだ。
const PostsPerSet = 3

// HashtagsPerPost は各投稿が持つべきハッシュタグの数なのだ。
const HashtagsPerPost = 5

// PostDraft はAIが生成したSNS投稿1件分のドラフトなのだ。
// 一度返された後は変更されない、読み取り専用のデータとして扱うのだよ。
type PostDraft struct {
	Title    string `json:"title"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
}

// HashtagCount は Hashtags 文字列に含まれるタグ（#始まりの語）の数を数えるのだ。
func (p PostDraft) HashtagCount() int {
	count := 0
	for _, field := range strings.Fields(p.Hashtags) {
		if strings.HasPrefix(field, "#") {
			count++
		}
	}
	return count
}

// PostSet は1トピックに対する投稿ドラフト一式なのだ。
// AIのレスポンス {"posts": [...]} をそのまま受けるための形になっているのだ。
type PostSet struct {
	Posts []PostDraft `json:"posts"`
}

// First は先頭の投稿を返すのだ。空の場合は false を返すのだよ。
func (ps *PostSet) First() (PostDraft, bool) {
	if ps == nil || len(ps.Posts) == 0 {
		return PostDraft{}, false
	}
	return ps.Posts[0], true
}
