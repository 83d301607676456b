// Command contact-cli 从终端提交联系表单，行为与站点表单一致。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"traguardo/backend/internal/formclient"
	"traguardo/backend/internal/logger"
)

// 退出码
const (
	exitOK      = 0
	exitError   = 1
	exitInvalid = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("contact-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		endpoint  = fs.String("endpoint", os.Getenv("CONTACT_ENDPOINT"), "submission endpoint URL (empty disables network submission)")
		configURL = fs.String("config-url", os.Getenv("CONTACT_CONFIG_URL"), "gateway /client-config URL used to discover the endpoint and fallback address")
		fallback  = fs.String("fallback", os.Getenv("CONTACT_FALLBACK_EMAIL"), "fallback contact address (default "+formclient.DefaultFallbackEmail+")")
		name      = fs.String("name", "", "your name")
		email     = fs.String("email", "", "your email address")
		message   = fs.String("message", "", "message text, \"-\" reads stdin")
		template  = fs.String("template", "", "prefill the message: "+strings.Join(formclient.TemplateNames(), ", "))
		website   = fs.String("website", "", "hidden field, leave empty")
		timeout   = fs.Duration("timeout", 15*time.Second, "request timeout")
		verbose   = fs.Bool("verbose", false, "log request details")
	)
	if err := fs.Parse(args); err != nil {
		return exitInvalid
	}

	text := *message
	switch {
	case text == "-":
		raw, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "read message: %v\n", err)
			return exitError
		}
		text = string(raw)
	case text == "" && *template != "":
		prefill, ok := formclient.Template(*template)
		if !ok {
			fmt.Fprintf(stderr, "unknown template %q (available: %s)\n", *template, strings.Join(formclient.TemplateNames(), ", "))
			return exitInvalid
		}
		text = prefill
	}

	log := zap.NewNop()
	if *verbose {
		log = logger.NewDevelopmentLogger()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg := formclient.Config{
		Endpoint:      *endpoint,
		FallbackEmail: *fallback,
		Logger:        log,
	}
	if *configURL != "" {
		remote, err := formclient.FetchConfig(ctx, nil, *configURL)
		if err != nil {
			// 读取失败时按本地设置继续，没有地址时客户端进入 info 状态
			fmt.Fprintf(stderr, "warning: %v\n", err)
		} else {
			cfg = remote.Apply(cfg)
			log.Debug("client config discovered",
				zap.String("endpoint", cfg.Endpoint),
				zap.String("fallback_email", cfg.FallbackEmail),
			)
		}
	}
	client := formclient.New(cfg)

	fmt.Fprintln(stdout, formclient.LoadingMessage(*website != ""))
	outcome := client.Submit(ctx, formclient.Form{
		Name:    *name,
		Email:   *email,
		Message: text,
		Website: *website,
	})

	return report(outcome, stdout, stderr)
}

func report(outcome formclient.Outcome, stdout, stderr io.Writer) int {
	if errors.Is(outcome.Err, formclient.ErrInvalidForm) {
		fmt.Fprintln(stderr, "Veuillez renseigner un nom, une adresse email valide et un message.")
		return exitInvalid
	}

	fmt.Fprintf(stdout, "[%s] %s\n", outcome.State, outcome.Message)
	if outcome.State == formclient.StateError {
		if outcome.Err != nil {
			fmt.Fprintf(stderr, "%v\n", outcome.Err)
		}
		return exitError
	}
	return exitOK
}
