package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"registry-gateway/registry/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// maxLineSize comporta documentos grandes codificados em base64.
const maxLineSize = 16 << 20

type creator interface {
	CreateDocument(ctx context.Context, cmd domain.Command) (domain.Result, error)
}

type job struct {
	line int
	cmd  domain.Command
}

// lineResult é escrito como uma linha JSON por comando lido.
type lineResult struct {
	Line  int    `json:"line"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

type summary struct {
	Read    int
	Created int
	Failed  int
	Skipped int
}

// submitAll lê comandos (um JSON por linha) e os envia com `workers` goroutines.
// Falhas por linha são reportadas em out e não interrompem o lote; só erro de
// leitura da entrada é devolvido.
func submitAll(ctx context.Context, c creator, in io.Reader, workers int, out io.Writer, logger *logrus.Logger) (summary, error) {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		sum summary
		enc = json.NewEncoder(out)
	)
	emit := func(r lineResult) {
		mu.Lock()
		defer mu.Unlock()
		if r.Error == "" {
			sum.Created++
		} else {
			sum.Failed++
		}
		if err := enc.Encode(r); err != nil {
			logger.WithError(err).Error("submitter: failed to write result")
		}
	}

	jobs := make(chan job)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		n := 0
		for sc.Scan() {
			n++
			text := strings.TrimSpace(sc.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				mu.Lock()
				sum.Skipped++
				mu.Unlock()
				continue
			}
			mu.Lock()
			sum.Read++
			mu.Unlock()

			cmd, err := parseCommand(text)
			if err != nil {
				emit(lineResult{Line: n, Error: err.Error()})
				continue
			}
			select {
			case jobs <- job{line: n, cmd: cmd}:
			case <-gctx.Done():
				return nil
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				res, err := c.CreateDocument(ctx, j.cmd)
				if err != nil {
					logger.WithError(err).WithField("line", j.line).Warn("submitter: document rejected")
					emit(lineResult{Line: j.line, Error: err.Error()})
					continue
				}
				emit(lineResult{Line: j.line, Value: res.Value.String()})
			}
			return nil
		})
	}

	err := g.Wait()
	return sum, err
}

func parseCommand(text string) (domain.Command, error) {
	var cmd domain.Command
	if err := json.Unmarshal([]byte(text), &cmd); err != nil {
		return domain.Command{}, fmt.Errorf("invalid command: %w", err)
	}
	if f, ok := domain.ParseFormat(string(cmd.Format)); ok {
		cmd.Format = f
	}
	return cmd, nil
}
