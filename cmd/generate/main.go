// Package main provides a CLI command for running one generation from a JSON file.
// Usage: devlog-generate -kind title|retrospective|experience [-file req.json] [-output json]
//
//	devlog-generate -token SUBJECT [-ttl 24h]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"devlog-ai/internal/config"
	"devlog-ai/internal/domain/entity"
	"devlog-ai/internal/handler/http/auth"
	"devlog-ai/internal/infra/llm"
	"devlog-ai/internal/observability/logging"
	genUC "devlog-ai/internal/usecase/generate"
	pkgconfig "devlog-ai/pkg/config"
)

const usage = `Usage: devlog-generate -kind title|retrospective|experience [-file req.json] [-output json]
       devlog-generate -token SUBJECT [-ttl 24h]

Examples:
  devlog-generate -kind title -file qna.json
  cat logs.json | devlog-generate -kind retrospective
  devlog-generate -kind experience -file retro.json -output json
  devlog-generate -token backend-service`

func main() {
	var (
		kindName     string
		file         string
		outputFormat string
		timeout      time.Duration
		subject      string
		ttl          time.Duration
	)

	flag.StringVar(&kindName, "kind", "", "Generation kind: title, retrospective or experience")
	flag.StringVar(&file, "file", "-", "Request JSON file, - for stdin")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Overall timeout including retries")
	flag.StringVar(&subject, "token", "", "Print a bearer token for SUBJECT signed with AUTH_JWT_SECRET and exit")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Lifetime of the token printed by -token")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	_ = godotenv.Load()

	if subject != "" {
		if err := printToken(os.Stdout, subject, ttl); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	kind, err := entity.ParseKind(kindName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s\n", err, usage)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the result
	logger := logging.New(os.Stderr,
		pkgconfig.GetEnvString("LOG_FORMAT", "text"),
		logging.ParseLevel(pkgconfig.GetEnvString("LOG_LEVEL", "warn")))
	slog.SetDefault(logger)

	raw, err := readInput(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read request: %v\n", err)
		os.Exit(1)
	}

	genConfig, err := config.LoadGenerationConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid generation configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	backend, err := llm.New(ctx, genConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create generation backend: %v\n", err)
		os.Exit(1)
	}
	opts := []genUC.Option{
		genUC.WithRetry(genConfig.Retry.Executor()),
		genUC.WithLanguage(genConfig.Language),
	}
	if genConfig.PromptsFile != "" {
		p, err := genUC.LoadPromptsFile(genConfig.PromptsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, genUC.WithPrompts(p))
	}
	svc := genUC.NewService(backend, opts...)

	res, err := run(ctx, svc, kind, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if outputFormat == "json" {
		err = outputJSON(os.Stdout, res)
	} else {
		err = outputText(os.Stdout, res)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to write output: %v\n", err)
		os.Exit(1)
	}
}

type generator interface {
	Generate(ctx context.Context, req entity.Request) (entity.Result, error)
}

// run decodes and validates raw as a request of kind and generates its result.
func run(ctx context.Context, gen generator, kind entity.Kind, raw []byte) (entity.Result, error) {
	req, err := entity.DecodeRequest(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s request: %w", kind, err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return gen.Generate(ctx, req)
}

func readInput(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	// #nosec G304 -- path is given by the operator on the command line
	return os.ReadFile(file)
}

func printToken(w io.Writer, subject string, ttl time.Duration) error {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is not set")
	}
	token, err := auth.IssueToken([]byte(secret), subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// outputText prints a result in human-readable format.
func outputText(w io.Writer, res entity.Result) error {
	var b strings.Builder
	switch r := res.(type) {
	case entity.TitleResult:
		b.WriteString(r.Title + "\n")
	case entity.RetrospectiveResult:
		b.WriteString(r.Retrospective + "\n")
	case entity.ExperienceResult:
		for i, exp := range r.Experiences {
			names := make([]string, len(exp.Keywords))
			for j, k := range exp.Keywords {
				names[j] = k.Name
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, exp.Title)
			if len(names) > 0 {
				fmt.Fprintf(&b, "   [%s]\n", strings.Join(names, ", "))
			}
			fmt.Fprintf(&b, "   %s\n\n", exp.Content)
		}
	default:
		return fmt.Errorf("%w: %T", entity.ErrUnknownKind, res)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// outputJSON prints a result in the same shape the HTTP API returns.
func outputJSON(w io.Writer, res entity.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(res)
}
