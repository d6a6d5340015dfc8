package runner

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/isolate"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// children are the test bodies the test binary runs when re-executed
var children = map[string]types.TestFunc{
	"done": func() int {
		fmt.Println("work done")
		return 0
	},
	"exit-one": func() int {
		fmt.Println("starting")
		return 1
	},
	"uncaught": func() int {
		fmt.Fprintln(os.Stderr, "Nobody will catch me.")
		panic("Nobody will catch me.")
	},
	"chatty": func() int {
		fmt.Print(strings.Repeat("a", 100))
		fmt.Print("TAIL")
		return 0
	},
	"hang": func() int {
		fmt.Println("hanging")
		time.Sleep(time.Minute)
		return 0
	},
}

func TestMain(m *testing.M) {
	isolate.MaybeExec(func(code string) (types.TestFunc, bool) {
		fn, ok := children[code]
		return fn, ok
	})
	os.Exit(m.Run())
}
