// forecastq runs forecast queries offline against the same pipeline the API
// serves, which is handy for checking a policy file before deploying it.
//
// Usage:
//
//	# Query the default version
//	forecastq query '$orderby=temperatureCelsius desc&$top=3'
//
//	# Query version 2.0 with a fixed seed
//	forecastq query --api-version 2.0 --seed 42 '$count=true'
//
//	# List registered versions and their allowed query options
//	forecastq versions --config config/base.yaml
package main

func main() {
	Execute()
}
