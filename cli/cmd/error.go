package cmd

import "github.com/ardnew/sprof/pkg"

var (
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrWriteOutput = pkg.NewError("write output")
	ErrReadSamples = pkg.NewError("read sample file")
)
