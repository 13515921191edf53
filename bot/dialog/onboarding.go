package dialog

import (
	"fmt"

	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/bot/turn"
)

// Step value keys, also the JSON keys inside the persisted dialog state.
const (
	stepTransport = "transport"
	stepName      = "name"
	stepGiveAge   = "giveAge"
	stepAge       = "age"
	stepCity      = "city"
	stepPicture   = "picture"
	stepConfirm   = "confirm"
)

// onboardingSteps is the fixed profile waterfall: transport, name, an age
// opt-in gate, age, city, picture, final confirmation. The terminal
// commit/summary lives in the engine's finish.
func onboardingSteps() []Step {
	return []Step{
		{
			Name: stepTransport,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				tc.SendWithActions("Quel est votre moyen de transport.", profile.TransportChoices()...)
				return prompt()
			},
			Validate: ChoiceValidator("Quel est votre moyen de transport.", profile.TransportChoices()...),
		},
		{
			Name: stepName,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				tc.Send("Veillez entrer votre nom.")
				return prompt()
			},
			Validate: TextValidator("Veillez entrer votre nom."),
		},
		{
			Name: stepGiveAge,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				if name, ok := st.StringValue(stepName); ok {
					tc.Send(fmt.Sprintf("Thanks %s", name))
				}
				tc.SendWithActions("Voulez-vous donner votre age ?", "Oui", "Non")
				return prompt()
			},
			Validate: ConfirmValidator(),
		},
		{
			Name: stepAge,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				if give, _ := st.BoolValue(stepGiveAge); !give {
					return skipWith(profile.AgeNotGiven)
				}
				tc.Send("Entrez votre age.")
				return prompt()
			},
			Validate: AgeValidator(),
		},
		{
			Name: stepCity,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				if age, ok := st.IntValue(stepAge); ok && age != profile.AgeNotGiven {
					tc.Send(fmt.Sprintf("I have your age as %d.", age))
				} else {
					tc.Send("No age given.")
				}
				tc.Send("Quel est votre ville ?")
				return prompt()
			},
			Validate: TextValidator("Quel est votre ville ?"),
		},
		{
			Name: stepPicture,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				// Teams cannot serve the attachment prompt, skip it there.
				if tc.ChannelID() == turn.ChannelMSTeams {
					tc.Send("Skipping attachment prompt in Teams channel...")
					return skipWith(nil)
				}
				tc.Send("Please attach a profile picture (or type any message to skip).")
				return prompt()
			},
			Validate: PictureValidator(),
		},
		{
			Name: stepConfirm,
			Prompt: func(tc *turn.Context, st *session.DialogState) Advance {
				tc.SendWithActions("Is this ok?", "Oui", "Non")
				return prompt()
			},
			Validate: ConfirmValidator(),
		},
	}
}
