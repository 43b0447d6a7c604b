// Package service exposes a translate.Translator over gRPC.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/batchxlate/pkg/language"
	"github.com/dasmlab/batchxlate/pkg/translate"
)

// Struct field names used by the service messages.
const (
	FieldText                 = "text"
	FieldSourceLanguage       = "source_language"
	FieldTargetLanguage       = "target_language"
	FieldSegments             = "segments"
	FieldInferenceTimeSeconds = "inference_time_seconds"
	FieldLanguages            = "languages"
)

// TranslationService implements TranslationServiceServer.
type TranslationService struct {
	// Translator is the translation backend.
	Translator translate.Translator

	// Logger for service operations.
	Logger *logrus.Logger
}

// NewTranslationService creates a new TranslationService instance.
func NewTranslationService(translator translate.Translator, logger *logrus.Logger) *TranslationService {
	if logger == nil {
		logger = logrus.New()
	}

	return &TranslationService{
		Translator: translator,
		Logger:     logger,
	}
}

// Translate translates one text. An empty source_language means auto.
func (s *TranslationService) Translate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	text := fields[FieldText].GetStringValue()
	sourceTag := fields[FieldSourceLanguage].GetStringValue()
	targetTag := fields[FieldTargetLanguage].GetStringValue()

	log := s.Logger.WithFields(logrus.Fields{
		"request_id":  RequestIDFromContext(ctx),
		"source_lang": sourceTag,
		"target_lang": targetTag,
		"text_length": len(text),
	})
	log.Info("Translate request received")

	startTime := time.Now()

	// Validate request
	if text == "" {
		log.Error("Translate: text is required")
		return nil, status.Error(codes.InvalidArgument, "text is required")
	}
	if targetTag == "" {
		log.Error("Translate: target_language is required")
		return nil, status.Error(codes.InvalidArgument, "target_language is required")
	}

	source := language.Auto
	if sourceTag != "" {
		var err error
		if source, err = language.Parse(sourceTag); err != nil {
			log.WithError(err).Error("Translate: invalid source_language")
			return nil, status.Errorf(codes.InvalidArgument, "source_language: %v", err)
		}
	}
	target, err := language.Parse(targetTag)
	if err != nil {
		log.WithError(err).Error("Translate: invalid target_language")
		return nil, status.Errorf(codes.InvalidArgument, "target_language: %v", err)
	}

	if s.Translator == nil {
		log.Error("Translate: translator not configured")
		return nil, status.Error(codes.FailedPrecondition, "translator not configured")
	}

	segments, err := s.Translator.Translate(ctx, text, source, target)
	if err != nil {
		log.WithError(err).Error("Translation failed")
		return nil, StatusFromError(err)
	}

	inferenceTime := time.Since(startTime).Seconds()
	log.WithFields(logrus.Fields{
		"segments":       len(segments),
		"inference_time": inferenceTime,
	}).Info("Translation completed successfully")

	list := make([]interface{}, len(segments))
	for i, seg := range segments {
		list[i] = seg
	}
	resp, err := structpb.NewStruct(map[string]interface{}{
		FieldSegments:             list,
		FieldSourceLanguage:       source.WireForm(),
		FieldTargetLanguage:       target.WireForm(),
		FieldInferenceTimeSeconds: inferenceTime,
	})
	if err != nil {
		log.WithError(err).Error("Failed to build Translate response")
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

// SupportedLanguages lists the language catalog.
func (s *TranslationService) SupportedLanguages(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if s.Translator == nil {
		return nil, status.Error(codes.FailedPrecondition, "translator not configured")
	}

	langs, err := s.Translator.SupportedLanguages(ctx)
	if err != nil {
		s.Logger.WithError(err).Error("Failed to list supported languages")
		return nil, StatusFromError(err)
	}

	list := make([]interface{}, 0, len(langs))
	for _, c := range langs {
		list = append(list, map[string]interface{}{
			"code": c.String(),
			"wire": c.WireForm(),
			"name": c.Name(),
		})
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(ctx),
		"count":      len(list),
	}).Debug("Listed supported languages")

	return structpb.NewStruct(map[string]interface{}{FieldLanguages: list})
}

// StatusFromError maps translation errors onto gRPC status codes.
func StatusFromError(err error) error {
	switch {
	case errors.Is(err, translate.ErrInvalidInput), errors.Is(err, language.ErrUnknownLanguage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, translate.ErrTransport):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, translate.ErrMalformedResponse):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
