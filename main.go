// ./main.go
package main

import (
	"github.com/xkilldash9x/dropzone/cmd"
)

func main() {
	cmd.Execute()
}
