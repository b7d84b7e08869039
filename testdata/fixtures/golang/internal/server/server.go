package server

import (
	"example.com/fixture/internal/util"
)

func Banner(name string) string {
	return util.Shout(name) + "!"
}
