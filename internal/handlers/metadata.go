package handlers

import (
	"net/http"

	"hlsgateway/internal/apierr"
	"hlsgateway/internal/probe"
)

type metadataAudio struct {
	Index int    `json:"index"`
	Lang  string `json:"lang"`
	Codec string `json:"codec"`
}

type metadataSubtitle struct {
	Index int    `json:"index"`
	Lang  string `json:"lang"`
	Title string `json:"title"`
	Codec string `json:"codec"`
}

type metadataResponse struct {
	Audio    []metadataAudio    `json:"audio"`
	Subs     []metadataSubtitle `json:"subs"`
	Duration float64            `json:"duration"`
}

// Metadata serves GET /metadata?url=<U>.
func (h *Handlers) Metadata(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		apierr.BadRequest(w, "url is required")
		return
	}

	report, err := probe.Probe(r.Context(), h.cfg.FFprobePath, url, h.cfg.ProbeTimeout)
	if err != nil {
		apierr.WriteError(w, "probe failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := metadataResponse{Duration: report.Duration}
	for _, a := range report.Audio {
		resp.Audio = append(resp.Audio, metadataAudio{Index: a.AbsoluteIndex, Lang: a.Language, Codec: a.CodecName})
	}
	for _, s := range report.Subtitles {
		resp.Subs = append(resp.Subs, metadataSubtitle{Index: s.AbsoluteIndex, Lang: s.Language, Title: s.Title, Codec: s.CodecName})
	}

	apierr.WriteJSON(w, resp)
}
