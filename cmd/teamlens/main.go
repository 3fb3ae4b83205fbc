// Package main is the entry point for TeamLens.
package main

func main() {
	Execute()
}
