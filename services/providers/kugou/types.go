package kugou

// searchResponse is the envelope of the lyrics search endpoint
type searchResponse struct {
	Status     int               `json:"status"`
	ErrCode    int               `json:"errcode"`
	ErrMsg     string            `json:"errmsg"`
	Candidates []LyricsCandidate `json:"candidates"`
}

// LyricsCandidate is one lyric file offered for a song hash
type LyricsCandidate struct {
	ID          string `json:"id"`
	AccessKey   string `json:"accesskey"`
	ProductFrom string `json:"product_from"`
	Singer      string `json:"singer"`
	Song        string `json:"song"`
	Duration    int    `json:"duration"` // milliseconds
	Language    string `json:"language"`
	KRCType     int    `json:"krctype"` // 1 = synced
	Score       int    `json:"score"`
}

// downloadResponse carries base64 LRC text
type downloadResponse struct {
	Status    int    `json:"status"`
	Info      string `json:"info"`
	ErrorCode int    `json:"error_code"`
	Charset   string `json:"charset"`
	Content   string `json:"content"`
}

type songSearchResponse struct {
	Status  int `json:"status"`
	ErrCode int `json:"errcode"`
	Data    struct {
		Total int        `json:"total"`
		Info  []SongInfo `json:"info"`
	} `json:"data"`
}

// SongInfo is a track from the song search. Its hash keys the lyrics search.
type SongInfo struct {
	Hash       string `json:"hash"`
	SQHash     string `json:"sqhash"`
	Hash320    string `json:"320hash"`
	SongName   string `json:"songname"`
	SingerName string `json:"singername"`
	AlbumName  string `json:"album_name"`
	Duration   int    `json:"duration"` // seconds
}
