package main

import (
	"io"
	"os"
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/plan-systems/klog"

	_ "github.com/go-python/gpython/stdlib"
	_ "github.com/pytrnsys/godck/pydck"
)

// runPython runs the script at pathname, or a REPL if pathname is empty.
// If outPathname is set, the script's stdout goes to that file instead.
func runPython(pathname, outPathname string) error {
	ctx := py.NewContext(py.DefaultContextOpts())

	var (
		err      error
		redirect io.Closer
	)
	if outPathname != "" {
		redirect, err = RedirectToFile(outPathname, ctx)
		if err != nil {
			ctx.Close()
			return err
		}
	}

	if len(pathname) == 0 {
		replCtx := repl.New(ctx)
		_, err = py.RunSrc(ctx, "import dck", "<startup>", replCtx.Module)
		if err == nil {
			cli.RunREPL(replCtx)
		}

	} else {
		startTime := time.Now()
		klog.Infof("executing '%s'", pathname)

		// RunFile only resolves paths against the python search path
		var src []byte
		src, err = os.ReadFile(pathname)
		if err == nil {
			_, err = py.RunSrc(ctx, string(src), pathname, nil)
		}

		if err == nil {
			klog.Infof("execution complete: %v", time.Since(startTime))
		}
	}

	ctx.Close()
	<-ctx.Done()

	if redirect != nil {
		if closeErr := redirect.Close(); err == nil {
			err = closeErr
		}
	}

	if err != nil {
		py.TracebackDump(err)
	}
	return err
}

type pyRedirect struct {
	file       *os.File
	prevStdout *os.File
}

// RedirectToFile sends the python sys.stdout (and os.Stdout) of ctx to a new file at outputPathname.
func RedirectToFile(outputPathname string, ctx py.Context) (io.Closer, error) {
	ofile, err := os.OpenFile(outputPathname, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	sys := ctx.Store().MustGetModule("sys")
	sys.Globals["stdout"] = &py.File{
		File:     ofile,
		FileMode: py.FileWrite,
	}

	redir := &pyRedirect{
		file:       ofile,
		prevStdout: os.Stdout,
	}
	os.Stdout = ofile

	return redir, nil
}

func (redir *pyRedirect) Close() error {
	if redir.prevStdout == nil {
		return nil
	}

	// Restore the previous Stdout and close the output file
	os.Stdout = redir.prevStdout
	redir.prevStdout = nil
	err := redir.file.Close()
	redir.file = nil
	return err
}
