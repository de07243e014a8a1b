package domain

// ScenesPerScript はリール台本が持つべきシーン数なのだ。
const ScenesPerScript = 3

// ReelScene はリール動画の1シーン分の構成なのだ。
type ReelScene struct {
	Scene           int    `json:"scene"`
	Description     string `json:"description"`
	CameraDirection string `json:"camera_direction"`
	Narration       string `json:"narration"`
}

// ReelScript はフック・シーン・CTAからなるリール動画の台本なのだ。
// 生成された単位で完結していて、後から書き換えられることはないのだよ。
type ReelScript struct {
	Hook   string      `json:"hook"`
	Scenes []ReelScene `json:"scenes"`
	CTA    string      `json:"cta"`
}
