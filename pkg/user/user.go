package user

type User struct {
	Id                  int
	Uid                 string
	Email               string
	DisplayName         string
	Currency            string
	OnboardingCompleted bool
}
