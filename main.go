/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/moamenhredeen/jptest/cmd"

func main() {
	cmd.Execute()
}
