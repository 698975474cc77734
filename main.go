package main

import "github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/cmd"

func main() {
	cmd.Execute()
}
