package main

import (
	"fmt"

	"github.com/szaher/cxassist/internal/runtime"
)

func versionString() string {
	return fmt.Sprintf("cxassist %s", runtime.Version)
}
