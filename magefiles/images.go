//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Images groups the container images the converters run.
type Images mg.Namespace

// images maps an image tag to its build context.
var images = map[string]string{
	"markitdown:latest":         "build/markitdown",
	"docbundle-pdfpages:latest": "build/pdfpages",
}

// Build builds every converter image with the detected container runtime.
func (Images) Build() error {
	rt, err := containerBin()
	if err != nil {
		return err
	}
	for tag, dir := range images {
		if err := sh.RunV(rt, "build", "-t", tag, dir); err != nil {
			return fmt.Errorf("building %s: %w", tag, err)
		}
	}
	return nil
}

func containerBin() (string, error) {
	for _, bin := range []string{"docker", "podman"} {
		if err := sh.Run(bin, "info"); err == nil {
			return bin, nil
		}
	}
	return "", fmt.Errorf("no container runtime available: neither docker nor podman found or operational")
}
