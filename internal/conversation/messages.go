package conversation

// User-facing texts.
const (
	msgStart = "This bot shows the weather along your route. Send /help for instructions."
	msgHelp  = "/weather - get the weather along a route\n" +
		"/cancel - abandon the route you are entering\n\n" +
		"You can type a city name or share a location for the departure and destination points."

	msgAskOrigin       = "Enter the departure city:"
	msgAskDestination  = "Enter the destination city:"
	msgAskStopover     = "Enter the intermediate city:"
	msgOfferStopover   = "Do you want the weather for intermediate cities?"
	msgOfferMore       = "Do you want the weather for one more intermediate city?"
	msgAskHorizon      = "Choose the forecast period:"
	msgOfferChart      = "Show the temperature on a chart?"
	msgThanks          = "Thanks for using the bot!"
	msgNotUnderstood   = "I don't understand this command. Type /help"
	msgEmptyCity       = "The city name cannot be empty."
	msgCancelled       = "Route entry cancelled. Send /weather to start again."
	msgNothingToCancel = "There is nothing to cancel."
	msgEmptyRoute      = "The route is empty, there is nothing to forecast. Send /weather to start again."

	errorPrefix = "An error was encountered: "
)
