// Package jurassic2 is a typed client for the AI21 Labs Jurassic-2 models on
// AWS Bedrock.
//
// It defines the request and response bodies of the Jurassic-2 completion
// API and a ChatBedrockAPI that hands the encoded request to a
// bedrock.Invoker. Signing, credentials, retries and timeouts are handled by
// the bedrock package.
//
// Reference: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-jurassic2.html
package jurassic2
