package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bep/helpers/envhelpers"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestScripts(t *testing.T) {
	params := commonTestScriptsParam
	params.Dir = "testscripts"
	// params.TestWork = true
	testscript.Run(t, params)
}

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"update-repos": main,
	})
}

func testSetupFunc() func(env *testscript.Env) error {
	sourceDir, _ := os.Getwd()
	return func(env *testscript.Env) error {
		var keyVals []string
		keyVals = append(keyVals, "SOURCE", sourceDir)
		// Keep the user's config file and terminal settings out of the scripts.
		keyVals = append(keyVals, "XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
		keyVals = append(keyVals, "NO_COLOR", "1")
		// CMDBIN lets scripts replace PATH and still run update-repos.
		keyVals = append(keyVals, "CMDBIN", commandDir("update-repos"))
		envhelpers.SetEnvVars(&env.Vars, keyVals...)
		return nil
	}
}

// commandDir returns the PATH entry holding the named harness command.
func commandDir(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && !fi.IsDir() {
			return dir
		}
	}
	return ""
}

var commonTestScriptsParam = testscript.Params{
	Setup: func(env *testscript.Env) error {
		return testSetupFunc()(env)
	},
	Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
		// repos creates working copies: each argument is DIR:MARKER, e.g.
		// src/a:.git or src/old:CVS.
		"repos": func(ts *testscript.TestScript, neg bool, args []string) {
			if len(args) == 0 {
				ts.Fatalf("usage: repos DIR:MARKER...")
			}
			for _, arg := range args {
				dir, marker, ok := strings.Cut(arg, ":")
				if !ok {
					ts.Fatalf("invalid repo argument %q", arg)
				}
				if err := os.MkdirAll(filepath.Join(ts.MkAbs(dir), marker), 0o755); err != nil {
					ts.Fatalf("%v", err)
				}
			}
		},
		// tree lists the working copies below a directory with their marker.
		"tree": func(ts *testscript.TestScript, neg bool, args []string) {
			dirname := ts.MkAbs(args[0])
			err := filepath.WalkDir(dirname, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() || !strings.HasPrefix(d.Name(), ".") {
					return nil
				}
				rel, err := filepath.Rel(dirname, filepath.Dir(path))
				if err != nil {
					return err
				}
				fmt.Fprintf(ts.Stdout(), "%s %s\n", filepath.ToSlash(rel), d.Name())
				return filepath.SkipDir
			})
			if err != nil {
				ts.Fatalf("%v", err)
			}
		},
	},
}
