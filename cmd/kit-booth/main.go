// Command kit-booth runs the makerspace kit booth: it tracks tagged items
// leaving and returning, books them to the presented card, and signals the
// borrower with lights and sound.
package main

func main() {
	Execute()
}
