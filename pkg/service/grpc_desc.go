package service

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are google.protobuf.Struct values so that no generated code is
// needed; field names are documented on each method.
const (
	ServiceName                  = "batchxlate.v1.TranslationService"
	TranslateFullMethod          = "/" + ServiceName + "/Translate"
	SupportedLanguagesFullMethod = "/" + ServiceName + "/SupportedLanguages"
)

// TranslationServiceServer is the server API for the translation service.
type TranslationServiceServer interface {
	// Translate takes {text, source_language, target_language} and returns
	// {segments, source_language, target_language, inference_time_seconds}.
	Translate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// SupportedLanguages returns {languages: [{code, wire, name}]}.
	SupportedLanguages(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterTranslationServiceServer registers srv with s.
func RegisterTranslationServiceServer(s grpc.ServiceRegistrar, srv TranslationServiceServer) {
	s.RegisterService(&TranslationServiceDesc, srv)
}

// TranslationServiceDesc describes the service for grpc.Server.
var TranslationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranslationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Translate", Handler: translateHandler},
		{MethodName: "SupportedLanguages", Handler: supportedLanguagesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "batchxlate/v1/translation.proto",
}

func translateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranslationServiceServer).Translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TranslateFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TranslationServiceServer).Translate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func supportedLanguagesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranslationServiceServer).SupportedLanguages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SupportedLanguagesFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(TranslationServiceServer).SupportedLanguages(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// TranslationServiceClient calls the translation service over cc.
type TranslationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTranslationServiceClient creates a client on cc.
func NewTranslationServiceClient(cc grpc.ClientConnInterface) *TranslationServiceClient {
	return &TranslationServiceClient{cc: cc}
}

// Translate invokes the Translate method with a raw Struct.
func (c *TranslationServiceClient) Translate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TranslateFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SupportedLanguages invokes the SupportedLanguages method.
func (c *TranslationServiceClient) SupportedLanguages(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SupportedLanguagesFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// TranslateText builds the request Struct, calls Translate and returns the
// segments.
func (c *TranslationServiceClient) TranslateText(ctx context.Context, text, source, target string, opts ...grpc.CallOption) ([]string, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		FieldText:           text,
		FieldSourceLanguage: source,
		FieldTargetLanguage: target,
	})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.Translate(ctx, req, opts...)
	if err != nil {
		return nil, err
	}

	values := resp.GetFields()[FieldSegments].GetListValue().GetValues()
	segments := make([]string, 0, len(values))
	for _, v := range values {
		segments = append(segments, v.GetStringValue())
	}
	return segments, nil
}
