package extract

import (
	"encoding/json"
	"strings"

	"ytscript/internal/media"
)

// playerResponse mirrors the parts of ytInitialPlayerResponse we read.
type playerResponse struct {
	VideoDetails struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []media.CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

// PlayerResponse extracts the player metadata embedded in a watch page.
// A page without a captions object is not a parse failure; HasCaptions is false.
func PlayerResponse(html string) (*media.PlayerMetadata, error) {
	raw, err := JSON(html, PlayerResponseVar)
	if err != nil {
		return nil, err
	}

	var pr playerResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, media.NewError(media.KindParse, "decoding player response", err)
	}

	meta := &media.PlayerMetadata{
		Title: strings.TrimSpace(pr.VideoDetails.Title),
	}
	if pr.PlayabilityStatus != nil {
		meta.PlayabilityStatus = pr.PlayabilityStatus.Status
		meta.PlayabilityReason = pr.PlayabilityStatus.Reason
	}
	if pr.Captions != nil {
		meta.HasCaptions = true
		meta.Tracks = pr.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	}
	return meta, nil
}
