package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"egovportal/config"
	"egovportal/internal/apiclient"
	"egovportal/internal/guard"
	"egovportal/internal/pkg/logger"
	"egovportal/internal/pkg/storage"
	"egovportal/internal/portal"
	"egovportal/internal/session"
)

// app é um terminal do portal: sessão persistida, cliente HTTP e telas.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	storage storage.Store
	store   *session.Store
	client  *apiclient.Client
	portal  *portal.Portal
	out     io.Writer
	errOut  io.Writer
}

// newApp monta as dependências na ordem: armazenamento, sessão, cliente, telas.
func newApp(cfg *config.Config, out, errOut io.Writer) (*app, error) {
	log := logger.NewLoggerTo(errOut, cfg.LogLevel)

	st, err := storage.Open(cfg.StorageOptions(), log)
	if err != nil {
		return nil, fmt.Errorf("abrindo armazenamento da sessão: %w", err)
	}

	a := &app{cfg: cfg, log: log, storage: st, out: out, errOut: errOut}
	a.store = session.NewStore(st, session.NavigatorFunc(a.redirected), log)
	a.store.Initialize()

	a.client = apiclient.New(cfg.APIBaseURL, apiclient.NewHTTPClient(cfg.HTTPTimeout()), a.store, log)
	a.store.SetAuthenticator(a.client.Auth)
	a.portal = portal.New(a.store, portal.BackendFrom(a.client), log)
	return a, nil
}

func (a *app) Close() error { return a.storage.Close() }

// redirected é a navegação do logout forçado.
func (a *app) redirected(path string) {
	fmt.Fprintf(a.errOut, "Signed out. Redirected to %s\n", path)
}

// enter passa pela guarda de rotas antes de abrir a tela de path.
func (a *app) enter(path string) (guard.Match, error) {
	m, d := guard.Navigate(a.store, path)
	switch d.Outcome {
	case guard.Allow:
		return m, nil
	case guard.Redirect:
		return m, &redirectError{from: path, to: d.Path}
	}
	return m, errors.New("session is still loading")
}

type redirectError struct{ from, to string }

func (e *redirectError) Error() string {
	return fmt.Sprintf("Access denied to %s. Redirected to %s", e.from, e.to)
}

// usageError encerra com código 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type repeatStringFlag []string

func (r *repeatStringFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatStringFlag) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	*r = append(*r, v)
	return nil
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError{msg: err.Error()}
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid id %q", s)
	}
	return id, nil
}

// action separa a subação opcional (list, add, edit...) dos argumentos.
func action(args []string, def string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return def, args
}

// idArg lê o primeiro argumento posicional como ID e devolve o resto.
func idArg(args []string) (int64, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return 0, nil, usagef("missing id")
	}
	id, err := parseID(args[0])
	return id, args[1:], err
}

// run executa um comando e devolve o código de saída: 0 ok, 1 falha, 2 uso.
func run(ctx context.Context, cfg *config.Config, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(errOut)
		return 2
	}
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(errOut, "egovctl: unknown command %q\n", args[0])
		printUsage(errOut)
		return 2
	}

	a, err := newApp(cfg, out, errOut)
	if err != nil {
		fmt.Fprintln(errOut, "egovctl:", err)
		return 1
	}
	defer a.Close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(errOut, "egovctl:", ue.msg)
			fmt.Fprintln(errOut, "usage: egovctl", cmd.usage)
			return 2
		}
		fmt.Fprintln(errOut, "error:", portal.Message(err, err.Error()))
		return 1
	}
	return 0
}
