package model

type Category struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	Count     int    `json:"count"`
	CreatedAt int64  `json:"created_at"`
}
