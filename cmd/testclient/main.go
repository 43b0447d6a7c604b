package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dasmlab/batchxlate/pkg/service"
)

type flags struct {
	serverAddr string
	sourceLang string
	targetLang string
	textFile   string
	text       string
	languages  bool
	timeout    time.Duration
}

func main() {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "testclient",
		Short: "Send one translation to a batchxlate server",
		Example: `  testclient --text "Hello World" --target de
  testclient --file README.txt --source en --target fr
  testclient --languages`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	rootCmd.Flags().StringVar(&f.serverAddr, "addr", "localhost:50051", "gRPC server address")
	rootCmd.Flags().StringVar(&f.sourceLang, "source", "auto", "Source language code (e.g., en, auto)")
	rootCmd.Flags().StringVar(&f.targetLang, "target", "fr", "Target language code (e.g., de, zh-CN)")
	rootCmd.Flags().StringVar(&f.textFile, "file", "", "Path to text file to translate")
	rootCmd.Flags().StringVar(&f.text, "text", "", "Text to translate (if file not provided)")
	rootCmd.Flags().BoolVar(&f.languages, "languages", false, "List supported languages and exit")
	rootCmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "Deadline for the call")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(f *flags) error {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	conn, err := grpc.NewClient(f.serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", f.serverAddr, err)
	}
	defer conn.Close()

	client := service.NewTranslationServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	if f.languages {
		return printLanguages(ctx, client)
	}

	var textToTranslate string
	switch {
	case f.textFile != "":
		data, err := os.ReadFile(f.textFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.textFile, err)
		}
		textToTranslate = string(data)
	case f.text != "":
		textToTranslate = f.text
	default:
		return fmt.Errorf("either --file or --text must be provided")
	}

	logger.WithFields(logrus.Fields{
		"server":      f.serverAddr,
		"source_lang": f.sourceLang,
		"target_lang": f.targetLang,
		"text_length": len(textToTranslate),
	}).Info("Translating text...")

	startTime := time.Now()
	segments, err := client.TranslateText(ctx, textToTranslate, f.sourceLang, f.targetLang)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	duration := time.Since(startTime)

	separator := strings.Repeat("=", 80)
	dashLine := strings.Repeat("-", 80)

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("TRANSLATION RESULTS")
	fmt.Println(separator)
	fmt.Printf("\nSource Language: %s\n", f.sourceLang)
	fmt.Printf("Target Language: %s\n", f.targetLang)
	fmt.Printf("Translation Time: %.2f seconds\n", duration.Seconds())
	fmt.Printf("Segments: %d\n", len(segments))
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println("ORIGINAL TEXT:")
	fmt.Println(dashLine)
	fmt.Println(textToTranslate)
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println("TRANSLATED TEXT:")
	fmt.Println(dashLine)
	fmt.Println(strings.Join(segments, ""))
	fmt.Println()
	fmt.Println(separator)

	logger.WithFields(logrus.Fields{
		"duration_seconds": duration.Seconds(),
		"segments":         len(segments),
	}).Info("Translation completed successfully")
	return nil
}

func printLanguages(ctx context.Context, client *service.TranslationServiceClient) error {
	resp, err := client.SupportedLanguages(ctx)
	if err != nil {
		return fmt.Errorf("list languages: %w", err)
	}

	for _, v := range resp.GetFields()[service.FieldLanguages].GetListValue().GetValues() {
		entry := v.GetStructValue().GetFields()
		fmt.Printf("%-10s %-10s %s\n",
			entry["code"].GetStringValue(),
			entry["wire"].GetStringValue(),
			entry["name"].GetStringValue())
	}
	return nil
}
