package model

// Account is one TikTok account's on-disk record: the rotating refresh token
// plus every parameter forwarded to the video generation backend. The file is
// always rewritten whole, so unknown fields are not preserved; keep this
// struct in sync with the provisioning template.
type Account struct {
	RefreshToken string `json:"refresh_token"`

	VideoSubjects     []string       `json:"video_subjects"`
	VideoLanguage     string         `json:"video_language"`
	VideoAspect       string         `json:"video_aspect"`
	VideoConcatMode   string         `json:"video_concat_mode"`
	VideoClipDuration int            `json:"video_clip_duration"`
	VideoCount        int            `json:"video_count"`
	VideoSource       string         `json:"video_source"`
	VideoMaterials    []MaterialInfo `json:"video_materials"`

	VoiceName   string  `json:"voice_name"`
	VoiceVolume float64 `json:"voice_volume"`
	VoiceRate   float64 `json:"voice_rate"`

	BgmType   string  `json:"bgm_type"`
	BgmFile   string  `json:"bgm_file"`
	BgmVolume float64 `json:"bgm_volume"`

	SubtitleEnabled     bool    `json:"subtitle_enabled"`
	SubtitlePosition    string  `json:"subtitle_position"`
	CustomPosition      float64 `json:"custom_position"`
	FontName            string  `json:"font_name"`
	TextForeColor       string  `json:"text_fore_color"`
	TextBackgroundColor string  `json:"text_background_color"`
	FontSize            int     `json:"font_size"`
	StrokeColor         string  `json:"stroke_color"`
	StrokeWidth         float64 `json:"stroke_width"`

	NThreads        int `json:"n_threads"`
	ParagraphNumber int `json:"paragraph_number"`
}

// MaterialInfo describes a pre-supplied clip for "local" video sources.
type MaterialInfo struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}
