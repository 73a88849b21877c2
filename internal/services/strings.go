package services

// User-facing texts. Only their existence and ordering is contractual;
// the wording follows the original bot's tone.
const (
	MsgChooseChannel  = "Choose channel:"
	MsgGreeting       = "Hello! Send /hello to register for raffles in this chat."
	MsgNotWinner      = "You are not the winner in any chat!"
	MsgCancelled      = "Cancelled!"
	MsgTimedOut       = "Timed out!"
	MsgUnknownError   = "Unknown error, please try again later!"
	MsgServerError    = "Server error, please try again later!\n\nThe administration has been contacted."
	MsgInvalidFile    = "Invalid ledger file!"
	MsgForbidden      = "You are not allowed to use this command!"
	MsgUserNotFound   = "Error getting user!\nPerhaps they haven't registered?"
	MsgAlreadyWinner  = "You are already the winner!"
	MsgNoRaffle       = "No raffle data found in this chat!"
	MsgNoEntries      = "No raffle entries yet in this chat!"
	MsgRegistered     = "You are now registered for raffles in this chat!"
	MsgDoubleRegister = "You are already registered in this chat!"
	MsgWinnerSet      = "@%s is the new winner!"
	MsgRaffleClosed   = "The raffle has been closed!"

	msgSetupBase        = "Raffle setup for %s\n=============================\n\n"
	msgSetupUpdateOrNew = "Found existing raffle.\nDo you want to update it or create a new one?"
	msgSetupNew         = "No existing raffle found.\nDo you want to create a new one?"
	msgSetupStartDate   = "Start date set to %s!\n"
	msgSetupEndDate     = "End date set to %s!\n\n"
	msgSetupFee         = "Fee set to %s!\n\n"
	msgEndBeforeStart   = "End date cannot be before start date!"
	msgNegativeFee      = "Fee cannot be negative!"
	msgConfirmed        = "Successfully set up a new raffle in %s!"
	msgUpdated          = "Updated raffle data in %s!"
	msgCreatedChat      = "New raffle created by @%s!"
	msgUpdatedChat      = "Raffle updated by @%s!"

	btnNewRaffle    = "Create a new raffle"
	btnUpdateRaffle = "Update existing raffle"
	btnConfirm      = "Confirm"
	btnFinish       = "Finish raffle"
	btnCancel       = "Cancel"
)
