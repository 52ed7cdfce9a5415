package components

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tenant-bootstrapper/core/events"
	"tenant-bootstrapper/feature/media"
	"tenant-bootstrapper/feature/spec"

	"go.uber.org/zap"
)

// mediaValue is an image, video or file entry. A bare string is read as src.
// Entries carrying a key are not uploaded again.
type mediaValue struct {
	Src        string           `json:"src"`
	Key        string           `json:"key"`
	MimeType   string           `json:"mimeType"`
	FileName   string           `json:"fileName"`
	AltText    spec.Translation `json:"altText"`
	Title      spec.Translation `json:"title"`
	Caption    json.RawMessage  `json:"caption"`
	Thumbnails json.RawMessage  `json:"thumbnails"`
}

func decodeMedia(raw json.RawMessage) []mediaValue {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}

	out := make([]mediaValue, 0, len(list))
	for _, entry := range list {
		var m mediaValue
		if spec.Kind(entry) == '"' {
			if err := json.Unmarshal(entry, &m.Src); err != nil {
				continue
			}
		} else if err := json.Unmarshal(entry, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// resolve returns the storage key and mime type of m, uploading it when it has
// no key yet. ok is false when the asset has to be skipped.
func (c *Compiler) resolve(ctx context.Context, sc Scope, kind string, m mediaValue) (key, mimeType string, ok bool) {
	if m.Key != "" {
		return m.Key, m.MimeType, true
	}
	if m.Src == "" || c.uploader == nil {
		return "", "", false
	}

	asset, err := c.uploader.Upload(ctx, m.Src, m.FileName)
	if err != nil {
		if errors.Is(err, media.ErrTranscoderUnavailable) {
			c.logger.Debug("Skipping video without transcoder", zap.String("src", m.Src))
			return "", "", false
		}
		c.sink.Emit(events.Event{
			Type:    events.TypeWarning,
			Code:    events.CodeUploadFailed,
			Message: fmt.Sprintf("could not upload %s %q: %v", kind, m.Src, err),
			Item:    sc.Item,
		})
		return "", "", false
	}
	return asset.Key, asset.MimeType, true
}

func (c *Compiler) images(ctx context.Context, sc Scope, raw json.RawMessage) []ImageContent {
	out := []ImageContent{}
	for _, m := range decodeMedia(raw) {
		key, mimeType, ok := c.resolve(ctx, sc, "image", m)
		if !ok {
			continue
		}

		img := ImageContent{Key: key, MimeType: mimeType, AltText: m.AltText.Get(sc.Language)}
		if len(m.Caption) > 0 {
			if caption, err := richText(m.Caption, sc.Language); err == nil {
				img.Caption = caption
			}
		}
		out = append(out, img)
	}
	return out
}

func (c *Compiler) videos(ctx context.Context, sc Scope, raw json.RawMessage) []VideoContent {
	out := []VideoContent{}
	for _, m := range decodeMedia(raw) {
		key, _, ok := c.resolve(ctx, sc, "video", m)
		if !ok {
			continue
		}

		video := VideoContent{Key: key, Title: m.Title.Get(sc.Language)}
		if len(m.Thumbnails) > 0 && !spec.IsNull(m.Thumbnails) {
			video.Thumbnails = c.images(ctx, sc, m.Thumbnails)
		}
		out = append(out, video)
	}
	return out
}

func (c *Compiler) files(ctx context.Context, sc Scope, raw json.RawMessage) []FileContent {
	out := []FileContent{}
	for _, m := range decodeMedia(raw) {
		key, _, ok := c.resolve(ctx, sc, "file", m)
		if !ok {
			continue
		}
		out = append(out, FileContent{Key: key, Title: m.Title.Get(sc.Language)})
	}
	return out
}

// Images compiles a list of images outside of a component, e.g. variant images.
func (c *Compiler) Images(ctx context.Context, sc Scope, raw json.RawMessage) []ImageContent {
	return c.images(ctx, sc, raw)
}

func (c *Compiler) paragraphs(ctx context.Context, sc Scope, raw json.RawMessage) (any, error) {
	var list []struct {
		Title  json.RawMessage `json:"title"`
		Body   json.RawMessage `json:"body"`
		Images json.RawMessage `json:"images"`
		Videos json.RawMessage `json:"videos"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	content := &ParagraphCollectionContent{Paragraphs: []Paragraph{}}
	for _, p := range list {
		var para Paragraph
		if len(p.Title) > 0 {
			para.Title.Text = translate(p.Title, sc.Language)
		}
		if len(p.Body) > 0 && !spec.IsNull(p.Body) {
			body, err := richText(p.Body, sc.Language)
			if err != nil {
				return nil, err
			}
			para.Body = body
		}
		if len(p.Images) > 0 && !spec.IsNull(p.Images) {
			para.Images = c.images(ctx, sc, p.Images)
		}
		if len(p.Videos) > 0 && !spec.IsNull(p.Videos) {
			para.Videos = c.videos(ctx, sc, p.Videos)
		}
		content.Paragraphs = append(content.Paragraphs, para)
	}
	return content, nil
}
