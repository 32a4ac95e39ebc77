package model

// FeedItem 是频道订阅流中的一个视频
type FeedItem struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Views     int64  `json:"views"`
	Uploaded  int64  `json:"uploaded"` // unix 毫秒
	IsShort   bool   `json:"isShort"`
	Thumbnail string `json:"thumbnail,omitempty"`
}
