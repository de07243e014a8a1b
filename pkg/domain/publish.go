package domain

import "net/http"

// PublishPayload はWebhookへ送信する最終ペイロードなのだ。
// 構築後は一切変更せず、このままJSONとして送信されるのだよ。
type PublishPayload struct {
	Topic     string `json:"topic"`
	Caption   string `json:"caption"`
	Hashtags  string `json:"hashtags"`
	FullText  string `json:"full_text"`
	ImageURL  string `json:"image_url"`
	PostTitle string `json:"post_title"`
	Timestamp string `json:"timestamp"`
}

// DeliveryReport はWebhook送信の結果報告なのだ。
// 送信失敗はエラーとして投げずに、この報告の中に記録するのが流儀なのだ。
type DeliveryReport struct {
	// StatusCode はWebhookが返したHTTPステータスなのだ。通信自体が失敗した場合は 0 になるのだ。
	StatusCode int `json:"status_code,omitempty"`
	// Error は通信失敗時のエラー内容なのだ。
	Error string `json:"error,omitempty"`
	// Response はWebhookが返した生のレスポンスボディなのだ。
	Response string `json:"response"`
	// Payload は実際に送信したペイロードの控えなのだ。
	Payload PublishPayload `json:"sent_payload"`
}

// Delivered は送信が2xxで受理されたかどうかを返すのだ。
func (r *DeliveryReport) Delivered() bool {
	return r.Error == "" && r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}
