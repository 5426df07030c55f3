package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type fakeCall struct {
	Name string
	Args []string
}

// fakeRunner records invocations. When an output flag is found it creates
// the named file so later steps can stat it.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []fakeCall
	fail   map[string]error
	create func(name string, args []string) []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (commandResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Name: name, Args: args})
	f.mu.Unlock()

	if err := f.fail[name]; err != nil {
		return commandResult{Stderr: "boom\nfatal: " + name, ExitCode: 1}, err
	}
	if f.create != nil {
		for _, p := range f.create(name, args) {
			if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
				return commandResult{ExitCode: -1}, err
			}
		}
	}
	return commandResult{}, nil
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Name
	}
	return out
}

// lastArgOutput treats the final argument as the output file.
func lastArgOutput(_ string, args []string) []string {
	return []string{args[len(args)-1]}
}

// aria2Output resolves the -d and -o flags of an aria2c call.
func aria2Output(name string, args []string) []string {
	if name != "aria2c" {
		return lastArgOutput(name, args)
	}
	var dir, file string
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "-d":
			dir = args[i+1]
		case "-o":
			file = args[i+1]
		}
	}
	return []string{filepath.Join(dir, file)}
}

func flagValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

var errExit = errors.New("exit status 1")

func joined(args []string) string { return strings.Join(args, " ") }
