package config

const (
	// TopicFileTagged is the NSQ topic announcing files whose tags were reported.
	TopicFileTagged = "files.tagged"
)
