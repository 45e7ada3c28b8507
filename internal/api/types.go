package api

import "time"

type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

type FileList struct {
	Object string     `json:"object"`
	Data   []FileInfo `json:"data"`
}

// ArrayValues is one window of an array in wire order.
type ArrayValues struct {
	File       string    `json:"file"`
	Name       string    `json:"name"`
	Precision  string    `json:"precision"`
	Components int       `json:"components"`
	Extent     []int     `json:"extent"`
	Len        int       `json:"len"`
	Offset     int       `json:"offset"`
	Values     []float64 `json:"values"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Kind    string `json:"kind,omitempty"`
	Array   string `json:"array,omitempty"`
}

type errorBody struct {
	Error ResponseError `json:"error"`
}
