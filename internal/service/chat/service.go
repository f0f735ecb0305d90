package chat

import (
	"context"
	"fmt"
	"io"

	"imgchat/internal/logger"
	"imgchat/internal/models"
	"imgchat/internal/service/format"
	"imgchat/internal/service/translate"
	"imgchat/internal/upload"

	"github.com/sirupsen/logrus"
)

// Translator sends an uploaded image to the translation gateway.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) translate.Result
}

// Recorder keeps a best-effort log of every gateway reply.
type Recorder interface {
	Record(ctx context.Context, rec models.TranslationRecord)
}

// Service runs the upload pipeline against a session transcript.
type Service struct {
	uploads    *upload.Dir
	translator Translator
	recorder   Recorder
	targetLang string
}

func NewService(uploads *upload.Dir, translator Translator, recorder Recorder, targetLang string) *Service {
	if targetLang == "" {
		targetLang = "en"
	}
	return &Service{
		uploads:    uploads,
		translator: translator,
		recorder:   recorder,
		targetLang: targetLang,
	}
}

// Clear empties the transcript.
func (s *Service) Clear(t *models.Transcript) {
	t.Clear()
}

// Submit stores the image, asks the gateway for a translation and appends
// the exchange to t. An error means nothing was appended.
func (s *Service) Submit(ctx context.Context, t *models.Transcript, filename, mimeType string, body io.Reader) (*models.UploadedFile, error) {
	file, err := s.uploads.Save(filename, body)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	file.MimeType = mimeType
	t.Append(models.ImageEntry(file.DisplayName))

	result := s.translate(ctx, file)
	msg := result.Message()
	entry := logger.WithFields(logrus.Fields{
		"file":    file.DisplayName,
		"storage": file.StorageName,
		"size":    file.Size,
	})
	if !result.OK() {
		entry.Warnf("translation failed: %v", result.Err)
	} else {
		msg = format.Translation(msg)
		entry.Debugf("translation received (%d bytes)", len(msg))
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, models.TranslationRecord{FileName: file.StorageName, ResponseText: msg})
	}
	t.Append(models.AssistantEntry(msg, !result.OK()))
	return file, nil
}

func (s *Service) translate(ctx context.Context, file *models.UploadedFile) translate.Result {
	f, err := s.uploads.Open(file.DisplayName)
	if err != nil {
		return translate.Failure(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	return s.translator.Translate(ctx, translate.Request{
		FileName:       file.StorageName,
		Body:           f,
		TargetLanguage: s.targetLang,
	})
}
