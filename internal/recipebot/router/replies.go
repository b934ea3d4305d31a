package router

import (
	"fmt"
	"strings"
)

const functionList = "Hello, I'm a professional recipe recommendation bot. Here are the functions I offer:\n" +
	"1. Random popular recipe recommendation: Use /popular to get a randomly recommended popular recipe.\n" +
	"2. Recipe details query: Use /detail <recipe_name> to get detailed information about a specific recipe.\n" +
	"3. Diet plan customization: Use /plan <duration> <calories> to generate a multi - day diet plan.\n" +
	"4. Ingredient - based recipe recommendation: Use /recommend <ingredient1> <ingredient2>... to get recipe recommendations based on the given ingredients.\n" +
	"5. Recipe collection and history: Use /collect <recipe_name> to collect a recipe, and /history to view the list of collected recipes.\n" +
	"6. Nutrition analysis: Use /nutrition <recipe_name> to get the nutritional analysis of a recipe.\n" +
	"7. Delete a collected recipe: Use /delete <recipe_name> to delete a collected recipe.\n"

const (
	// HelpText answers /help and /start.
	HelpText = functionList + "You can also get answers by directly asking questions."
	// CapabilitySummary follows every free-text answer.
	CapabilitySummary = functionList + "Enter /help to view detailed function usage, or you can directly ask questions to get answers."

	BackendFailureText = "Sorry, I couldn't reach the recipe assistant right now. Please try again later."
	StoreFailureText   = "Sorry, your recipe collection is unavailable right now. Please try again later."

	noPopularText   = "No popular recipes were obtained."
	noFavoritesText = "No recipes have been collected yet."
)

func popularReply(name string) string {
	return fmt.Sprintf("The randomly recommended popular recipe is: %s\nEnter /detail %s to get the cooking method of this recipe.", name, name)
}

func collectedReply(name string) string {
	return fmt.Sprintf("The recipe %s has been collected.", name)
}

func deletedReply(name string) string {
	return fmt.Sprintf("The collected recipe %s has been deleted.", name)
}

func historyReply(names []string) string {
	if len(names) == 0 {
		return noFavoritesText
	}
	return "List of collected recipes:\n" + strings.Join(names, "\n") +
		"\nEnter /detail <recipe_name> to get its specific cooking method."
}
