// Command yatubectl runs operator tasks: schema migrations, demo data,
// groups and accounts.
package main

import "yatube/cmd/yatubectl/commands"

func main() {
	commands.Execute()
}
