package main

import (
	"fmt"

	"example.com/fixture/internal/util"
)

func main() {
	fmt.Println(util.Shout("hello"))
}
