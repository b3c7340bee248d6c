package main

import (
	"github.com/demile-15/ConcurrentDB/internal/cmd"
	"github.com/demile-15/ConcurrentDB/pkg/di"
)

func main() {
	container := di.NewContainer()
	cmd.SetContainer(container)
	cmd.Execute()
}
