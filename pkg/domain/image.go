package domain

// GeneratedImage はパイプラインが生成した1枚の画像の所在を追跡するのだ。
type GeneratedImage struct {
	// RemoteURL は画像生成サービスが返した一時URLなのだ。期限切れで消えることがあるのだ。
	RemoteURL string `json:"remote_url"`
	// LocalPath はブランドテキスト合成後のローカルファイルパスなのだ（合成した場合のみ）。
	LocalPath string `json:"local_path,omitempty"`
	// HostedURL は画像ホスティングに再アップロードした後の恒久URLなのだ。
	HostedURL string `json:"hosted_url,omitempty"`
}

// BestURL は下流に渡すべきURLを返すのだ。
// ホスティング済みURLが最優先で、なければ生成元の一時URLで妥協するのだよ。
func (g GeneratedImage) BestURL() string {
	if g.HostedURL != "" {
		return g.HostedURL
	}
	return g.RemoteURL
}
