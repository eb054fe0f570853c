// Command routeweather runs the route weather Telegram bot and its
// companion terminal commands.
package main

func main() {
	Execute()
}
