package response

import "github.com/gin-gonic/gin"

var (
	NoFileError = gin.H{"error": "No image file provided in the request."}

	TooLargeError = gin.H{"error": "Uploaded file is too large."}

	ReplicateError = func(details string) gin.H {
		return gin.H{"error": "Error from Replicate API", "details": details}
	}

	TimeoutError = gin.H{
		"error":   "Request timed out",
		"details": "The image generation took too long. Please try again with a smaller image.",
	}

	InternalError = func(details string) gin.H {
		return gin.H{"error": "An internal error occurred during image generation.", "details": details}
	}
)
