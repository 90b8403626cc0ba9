package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/alessio/shellescape"
	"github.com/rs/zerolog/log"
)

var ErrToolUnavailable = errors.New("tool unavailable")

// Invocation is one run of the external tool.
type Invocation struct {
	Args []string
	// Stream receives every non-empty output line of both streams as it arrives.
	// Calls are serialized.
	Stream func(line string)
}

type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Invoker runs the external tool. The error is non-nil only when the process
// could not be started or the context ended; a non-zero exit is reported
// through Result.ExitCode.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) (Result, error)
}

type ExecInvoker struct {
	Path      string
	WaitDelay time.Duration
}

func NewExecInvoker(path string) *ExecInvoker {
	return &ExecInvoker{
		Path:      path,
		WaitDelay: 5 * time.Second,
	}
}

func (e *ExecInvoker) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	result := Result{ExitCode: -1}
	if e.Path == "" {
		return result, fmt.Errorf("%w: no yt-dlp path configured", ErrToolUnavailable)
	}
	cmd := exec.CommandContext(ctx, e.Path, inv.Args...)
	configureProcess(cmd)
	cmd.WaitDelay = e.WaitDelay
	log.Debug().Str("op", "ytdlp/invoke").Msgf("executing: %s", shellescape.QuoteCommand(append([]string{e.Path}, inv.Args...)))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return result, fmt.Errorf("error creating stdout pipe: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result, fmt.Errorf("error creating stderr pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		log.Error().Str("op", "ytdlp/invoke").Err(err).Msg("error starting yt-dlp")
		return result, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	var outBuf, errBuf bytes.Buffer
	var streamMu sync.Mutex
	emit := func(line string) {
		if inv.Stream == nil {
			return
		}
		streamMu.Lock()
		defer streamMu.Unlock()
		inv.Stream(line)
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processStream(stdout, &outBuf, emit)
	}()
	go func() {
		defer wg.Done()
		processStream(stderr, &errBuf, emit)
	}()
	wg.Wait()
	waitErr := cmd.Wait()

	result.Stdout = outBuf.Bytes()
	result.Stderr = errBuf.Bytes()
	if ctx.Err() != nil {
		log.Debug().Str("op", "ytdlp/invoke").Msgf("yt-dlp stopped: %v", ctx.Err())
		return result, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			log.Debug().Str("op", "ytdlp/invoke").Msgf("yt-dlp exited with code %d", result.ExitCode)
			return result, nil
		}
		return result, fmt.Errorf("yt-dlp failed: %v", waitErr)
	}
	result.ExitCode = 0
	return result, nil
}

// processStream copies reader into buf and hands each non-empty line to emit.
// Lines are read without a length limit since the resolve JSON is a single line.
func processStream(reader io.Reader, buf *bytes.Buffer, emit func(string)) {
	r := bufio.NewReader(reader)
	for {
		chunk, err := r.ReadString('\n')
		if chunk != "" {
			buf.WriteString(chunk)
			line := strings.TrimSpace(chunk)
			if line != "" {
				emit(line)
			}
		}
		if err != nil {
			return
		}
	}
}
