// Package prompt turns parsed commands into the natural-language queries sent
// to the generation backend. Every function is pure; arguments are
// interpolated verbatim.
package prompt

import "fmt"

const (
	popularTemplate   = "Generate one random recommended dish name, returning only the name; a new dish must be returned each time and must not repeat the immediately previous one."
	recipeTemplate    = "Generate a list of recipes containing %s."
	detailTemplate    = "Detailed cooking steps for %s."
	planTemplate      = "Develop a %s diet plan with a daily calorie limit of %s calories."
	recommendTemplate = "What recipes can be made using %s."
	nutritionTemplate = "Nutritional analysis of %s."
)

// Popular asks for one random dish name.
func Popular() string {
	return popularTemplate
}

// Recipe asks for recipes containing the given keywords.
func Recipe(ingredients string) string {
	return fmt.Sprintf(recipeTemplate, ingredients)
}

// Detail asks for the cooking steps of a recipe.
func Detail(recipeName string) string {
	return fmt.Sprintf(detailTemplate, recipeName)
}

// Plan asks for a diet plan over duration under a daily calorie limit.
func Plan(duration, calories string) string {
	return fmt.Sprintf(planTemplate, duration, calories)
}

// Recommend asks what can be cooked from the given ingredients.
func Recommend(ingredients string) string {
	return fmt.Sprintf(recommendTemplate, ingredients)
}

// Nutrition asks for a nutritional analysis of a recipe.
func Nutrition(recipeName string) string {
	return fmt.Sprintf(nutritionTemplate, recipeName)
}
