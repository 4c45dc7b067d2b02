package dto

import "tiktok-autoposter/domain/model"

// ScriptRequest asks the generation backend to write a short-video script.
type ScriptRequest struct {
	VideoSubject    string `json:"video_subject"`
	VideoLanguage   string `json:"video_language"`
	ParagraphNumber int    `json:"paragraph_number"`
}

type ScriptResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		VideoScript string `json:"video_script"`
	} `json:"data"`
}

// TermsRequest asks for stock-footage search terms matching a script.
type TermsRequest struct {
	VideoSubject string `json:"video_subject"`
	VideoScript  string `json:"video_script"`
	Amount       int    `json:"amount"`
}

type TermsResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		VideoTerms []string `json:"video_terms"`
	} `json:"data"`
}

// VideoRequest is the full render request: subject, script, joined terms and
// every account-configured rendering parameter.
type VideoRequest struct {
	VideoSubject      string               `json:"video_subject"`
	VideoScript       string               `json:"video_script"`
	VideoTerms        string               `json:"video_terms"`
	VideoAspect       string               `json:"video_aspect"`
	VideoConcatMode   string               `json:"video_concat_mode"`
	VideoClipDuration int                  `json:"video_clip_duration"`
	VideoCount        int                  `json:"video_count"`
	VideoSource       string               `json:"video_source"`
	VideoMaterials    []model.MaterialInfo `json:"video_materials"`
	VideoLanguage     string               `json:"video_language"`

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

type VideoResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

// TaskResponse reports render progress; State 1 means the task is complete.
type TaskResponse struct {
	Status int `json:"status"`
	Data   struct {
		State    int     `json:"state"`
		Progress float64 `json:"progress"`
	} `json:"data"`
}

// GeneratedVideo is the local result of one finished generation run.
type GeneratedVideo struct {
	TaskID      string
	Path        string
	Description string
}
