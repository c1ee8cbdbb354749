package main

import (
	"fmt"
	"runtime"

	"github.com/born-ml/litsnet/internal/litsnet"
	"github.com/born-ml/litsnet/internal/parallel"
)

func runVersion() error {
	fmt.Printf("litsnet %s (%s/%s, %s, %d cores)\n",
		litsnet.Version, runtime.GOOS, runtime.GOARCH, runtime.Version(), parallel.Cores())
	return nil
}
