package entity

type BlogTopicsResponse struct {
	Topics []BlogTopic `json:"topics"`
	Count  int         `json:"count"`
}
