package autoload

// Import all middleware subpackages for side-effect registration.
import (
	_ "mentorbot/middlewares/greeting"
	_ "mentorbot/middlewares/localcache"
	_ "mentorbot/middlewares/mentor"
	_ "mentorbot/middlewares/tokenbudget"
)
