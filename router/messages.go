package router

// User-facing texts. Raw error detail never appears in them.
const (
	msgGeneric     = "Something went wrong here... I will tell the developers and hopefully they will manage to fix this."
	msgNotExisting = "This information is not defined in the Swagger file. Sorry!"
	msgNotDefined  = "This data is not part of the OpenAPI specifications: https://github.com/OAI/OpenAPI-Specification"
	msgNoAPI       = "We do not have information about this API. Feel free to add it yourself!"

	msgInvalidURL   = "This is an invalid URL!"
	msgNameExists   = "An API with this name already exists!"
	msgURLExists    = "An API pointing to this URL already exists!"
	msgCreated      = "New API added, thanks!"
	msgInvalidSpec  = "This is not a valid Swagger 2.0 file."
	msgCreateUsage  = "I need a name and URL pointing to a OpenAPI json specification in order to create a new API."
	msgNoAPIs       = "There are no APIs registered yet.\nYou can *create* a new API if you have a URL to a valid Swagger file."
	msgAPIList      = "We have these APIs:\n%s\nIf you want to know more about a certain API, just tell me you want to *use* that one.\nYou can also *create* a new API if you have a URL to a valid Swagger file."
	msgInfo         = "Here is the *%s* you asked for *%s*:\n%s"
	msgList         = "Here is a *list of %s* defined:\n%s"
	msgObject       = "Here is the object definition for *%s*:\n%s"
	msgObjectLinked = msgObject + "\n\nI also found these operations linked to it:\n%s"
	msgOperation    = "Here is the operation definition for *%s*:\n%s"
	msgPath         = "Here is the path definition for *%s*:\n%s"

	msgNoPaths       = "There are no paths defined in this OpenAPI specification."
	msgNoOperations  = "There are no operations defined in this OpenAPI specification."
	msgNoDefinitions = "No objects are defined in this OpenAPI specification."
)

// Button prompts.
const (
	promptAPIs        = "Which API you want to know more about? Here are top APIs:"
	promptPaths       = "Which path you want to know more about? Here are the top paths:"
	promptOperations  = "Which operation you want to know more about? Here are the top operations:"
	promptDefinitions = "Which object you want to know more about? Here are top objects:"
	promptReferences  = "Which operation you want to know more about? Here are top operations:"
)

// Slack callback ids.
const (
	callbackAPIs        = "api_list"
	callbackPaths       = "paths"
	callbackOperations  = "operations"
	callbackDefinitions = "object_definitions"
	callbackReferences  = "object_definition"
)
