package main

import "napi/internal/napi"

func main() {
	napi.Main()
}
