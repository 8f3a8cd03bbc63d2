package iteration

import "github.com/vmakaev/rslph/internal/config"

// buildArgs composes the agent CLI argument vector from the configured
// flag template (spec §6 wire contract): the presence and spelling of each
// flag is a configuration detail, never hardcoded here.
func buildArgs(agent config.AgentConfig, systemPrompt, resumeSessionID, userInput string) []string {
	var args []string

	if agent.InternetFlag != "" {
		args = append(args, agent.InternetFlag)
	}
	if agent.PrintFlag != "" {
		args = append(args, agent.PrintFlag)
	}
	if agent.VerboseFlag != "" {
		args = append(args, agent.VerboseFlag)
	}
	if agent.OutputFormatFlag != "" {
		args = append(args, agent.OutputFormatFlag, agent.OutputFormatValue)
	}
	if agent.Model != "" && agent.ModelFlag != "" {
		args = append(args, agent.ModelFlag, agent.Model)
	}
	if agent.SystemPromptFlag != "" {
		args = append(args, agent.SystemPromptFlag, systemPrompt)
	}
	if resumeSessionID != "" && agent.ResumeFlag != "" {
		args = append(args, agent.ResumeFlag, resumeSessionID)
	}
	args = append(args, userInput)

	return args
}
