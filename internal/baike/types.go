package baike

// DiscussionResponse is the envelope returned by the discussion endpoint.
type DiscussionResponse struct {
	Errno         int          `json:"errno"`
	Errmsg        string       `json:"errmsg"`
	ServiceStatus int          `json:"serviceStatus"`
	Data          []Discussion `json:"data"`
}

// Discussion is a single discussion thread ("tashuo") attached to a lemma.
//
// Only the fields needed for rendering are typed precisely. ExtData,
// ReferData, BjhInfo and ContributeFlags are passed through as received and
// are never interpreted.
type Discussion struct {
	IssueID    int64             `json:"issueId"`
	Title      string            `json:"title"`
	Content    DiscussionContent `json:"content"`
	UID        int64             `json:"uid"`
	Uname      string            `json:"uname"`
	Category   int               `json:"category"`
	EntityType int               `json:"entityType"`
	ReferType  int               `json:"referType"`
	ReferID    string            `json:"referId"`
	Status     int               `json:"status"`
	Progress   int               `json:"progress"`
	Level      int               `json:"level"`
	HotFlag    int               `json:"hotFlag"`

	// Unix timestamps, in seconds.
	CreateTime int64 `json:"createTime"`
	UpdateTime int64 `json:"updateTime"`
	CloseTime  int64 `json:"closeTime"`

	Score    float64 `json:"score"`
	ReplyNum int64   `json:"replyNum"`
	StarNum  int64   `json:"starNum"`
	ExtFlag  int     `json:"extFlag"`
	Priority int     `json:"priority"`

	Portrait    string `json:"portrait"`
	DisplayName string `json:"displayname"`
	AuthorName  string `json:"authorName"`
	UK          string `json:"uk"`
	BdappUK     string `json:"bdappUk"`

	// Pass-through: version info, relations, author program info and the
	// anonymity and platform flags.
	ExtData         map[string]any `json:"extData,omitempty"`
	ReferData       map[string]any `json:"referData,omitempty"`
	BjhInfo         map[string]any `json:"bjhInfo,omitempty"`
	ContributeFlags []any          `json:"contributeFlags"`
}

// DiscussionContent is the body of a discussion.
type DiscussionContent struct {
	Text    string    `json:"text"`
	Pics    []Picture `json:"pics"`
	Struct  []any     `json:"struct"`
	More    int       `json:"more"`
	Summary string    `json:"summary"`
}

// Picture is an image attached to a discussion, in its display, original
// and share variants.
type Picture struct {
	PicID       int64  `json:"picId"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	PicSrc      string `json:"picSrc"`
	Type        string `json:"type"`
	OriWidth    int    `json:"oriWidth"`
	OriHeight   int    `json:"oriHeight"`
	OriImgURL   string `json:"oriImgUrl"`
	ImgURL      string `json:"imgUrl"`
	ShareImgURL string `json:"shareImgUrl"`
}

// ImageURLs returns the display URL of every picture, in order.
func (c DiscussionContent) ImageURLs() []string {
	urls := make([]string, 0, len(c.Pics))
	for _, p := range c.Pics {
		urls = append(urls, p.ImgURL)
	}
	return urls
}
